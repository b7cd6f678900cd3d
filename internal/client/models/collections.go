package models

// Collection names. They double as SQLite table names locally and as the
// remote table names the row store accepts.
const (
	CollectionCases    = "cases"
	CollectionAnswers  = "checklist_answers"
	CollectionMedia    = "media"
	CollectionQueue    = "op_queue"
	CollectionMetadata = "metadata"
)

// Op is the kind of a queued metadata mutation.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

func (o Op) Valid() bool {
	switch o {
	case OpInsert, OpUpdate, OpDelete:
		return true
	}
	return false
}
