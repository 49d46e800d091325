package ports

import (
	"context"
	"encoding/json"
	"net/url"
)

// PupilChange carries the mutable pupil fields for an update request.
type PupilChange struct {
	PupilLoginName string `json:"pupilLoginName"`
	NewPassword    string `json:"newPassword"`
}

// StudentDirectory proxies the upstream student-records API. Payloads are
// passed through untyped; this service adds authentication and scoping but
// does not reinterpret the records themselves. loginName scopes every call
// to the schools the calling administrator may see.
type StudentDirectory interface {
	Schools(ctx context.Context, loginName string) (json.RawMessage, error)
	Classes(ctx context.Context, schoolID, loginName string) (json.RawMessage, error)
	ClassPupils(ctx context.Context, schoolClassID, loginName string) (json.RawMessage, error)
	SearchPupils(ctx context.Context, loginName string, params url.Values) (json.RawMessage, error)
	GeneratePupilPassword(ctx context.Context, loginName string) (json.RawMessage, error)
	UpdatePupil(ctx context.Context, pupilLoginName, loginName string, change PupilChange) (json.RawMessage, error)
	// PersonImage fetches a person photo as raw JPEG bytes, scaled to width.
	PersonImage(ctx context.Context, personID string, width int) ([]byte, error)
}
