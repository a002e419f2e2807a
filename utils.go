package issuestore

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var keyPattern = regexp.MustCompile(`^\w+$`)

// IsValidKey reports whether key can be written to a registry index line.
func IsValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

func UserIDLabel(userID int64) string {
	return userIDLabelPrefix + strconv.FormatInt(userID, 10)
}

func ParseUserIDLabel(label string) (int64, bool) {
	if !strings.HasPrefix(label, userIDLabelPrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(label, userIDLabelPrefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func HasLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// HasUserIDLabel reports whether any label carries a user-id.
func HasUserIDLabel(labels []string) bool {
	for _, l := range labels {
		if _, ok := ParseUserIDLabel(l); ok {
			return true
		}
	}
	return false
}

// RecordTypeTitle turns "skill-builds" into "Skill Builds".
func RecordTypeTitle(recordType string) string {
	words := strings.ReplaceAll(recordType, "-", " ")
	return cases.Title(language.English).String(words)
}

// CollectionTitle is the title of a per-user collection ticket. Older
// tickets were found by this title alone, before the user-id label existed.
func CollectionTitle(recordType, username string) string {
	return fmt.Sprintf("[%s] %s", RecordTypeTitle(recordType), username)
}

// MatchesCollectionTitle reports whether title is the legacy title for
// username's collection of recordType.
func MatchesCollectionTitle(title, recordType, username string) bool {
	if username == "" {
		return false
	}
	title = strings.TrimSpace(title)
	if strings.EqualFold(title, CollectionTitle(recordType, username)) {
		return true
	}
	return strings.HasPrefix(title, "[") && strings.HasSuffix(title, "] "+username)
}

func RegistryTitle(recordType string) string {
	return fmt.Sprintf("[%s Registry]", RecordTypeTitle(recordType))
}

func CollectionLabels(recordType string, userID int64) []string {
	return []string{recordType, UserIDLabel(userID), LabelAutomated}
}

func RegistryLabels(recordType string) []string {
	return []string{recordType, LabelDataVersion, LabelAutomated}
}

// NewRecordID returns "{recordType}-{epochMillis}-{suffix}" where suffix is
// lowercase alphanumeric.
func NewRecordID(recordType string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return fmt.Sprintf("%s-%d-%s", recordType, now.UnixMilli(), suffix)
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
