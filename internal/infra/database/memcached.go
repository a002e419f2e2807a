package database

import (
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
)

func NewMemcached(server string) (*memcache.Client, error) {
	client := memcache.New(server)
	client.Timeout = 500 * time.Millisecond
	if err := client.Ping(); err != nil {
		return nil, errors.Wrap(err, "database.NewMemcached: ping failed")
	}
	return client, nil
}
