package issuestore

const (
	LabelAutomated   string = "automated"
	LabelDataVersion string = "data-version:v1"

	userIDLabelPrefix string = "user-id:"
)

const (
	RecordTypeSkillBuilds       string = "skill-builds"
	RecordTypeBattleLoadouts    string = "battle-loadouts"
	RecordTypeSpiritCollections string = "spirit-collections"
	RecordTypeProfilePictures   string = "profile-pictures"
	RecordTypeRateLimits        string = "rate-limits"
)

// DefaultCollectionLimit is the per-user record cap applied when a
// collection type has no explicit limit configured.
const DefaultCollectionLimit = 10

// Reserved record fields. Values under these keys are owned by the store.
const (
	FieldID        = "id"
	FieldUserID    = "userId"
	FieldUsername  = "username"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// TimestampLayout is the wire format of createdAt/updatedAt.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
