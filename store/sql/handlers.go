package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func scriptRunLogHandlers() repository.ModelHandlers[*scriptRunLogRecord] {
	return repository.ModelHandlers[*scriptRunLogRecord]{
		NewRecord: func() *scriptRunLogRecord {
			return &scriptRunLogRecord{}
		},
		GetID: func(record *scriptRunLogRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *scriptRunLogRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *scriptRunLogRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func syncRecordHandlers() repository.ModelHandlers[*syncRecord] {
	return repository.ModelHandlers[*syncRecord]{
		NewRecord: func() *syncRecord {
			return &syncRecord{}
		},
		GetID: func(record *syncRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *syncRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *syncRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
