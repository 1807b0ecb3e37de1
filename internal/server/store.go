package server

import (
	"context"
	"errors"

	"github.com/scoutbase/matchscout/internal/scouting"
)

var ErrNotFound = errors.New("not found")

// StoredReport is one persisted submission plus its routing keys.
type StoredReport struct {
	EventKey string `json:"eventKey"`
	MatchKey string `json:"matchKey"`
	Station  string `json:"station"`
	scouting.Report
	CreatedAt string `json:"createdAt,omitempty"`
}

// PendingKey identifies the local fallback slot for one scouting session,
// so a re-attempt resumes the same report instead of duplicating it.
type PendingKey struct {
	EventKey string
	MatchKey string
	Station  string
	ScoutID  string
}

type Store interface {
	// InsertReport stores rec keyed by its report ID. A duplicate report ID
	// is not an error; inserted reports whether a new row was written.
	InsertReport(ctx context.Context, rec StoredReport) (inserted bool, err error)
	ListReports(ctx context.Context, eventKey, matchKey string, robot int) ([]StoredReport, error)

	SavePending(ctx context.Context, key PendingKey, payload []byte) error
	LoadPending(ctx context.Context, key PendingKey) ([]byte, error)
	DeletePending(ctx context.Context, key PendingKey) error
}
