package mcu

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/mcu/mcu/internal/domain/report"
)

// Stations a participant passes through. A nil flag list means the station is
// open to every participant; otherwise any listed flag unlocks it.
var stations = []struct {
	name  string
	flags []report.Flag
}{
	{"registration", nil},
	{"physical_exam", nil},
	{"laboratory", []report.Flag{report.FlagHematology, report.FlagUrinalysis, report.FlagChemistry}},
	{"radiology", []report.Flag{report.FlagRadiology}},
	{"ekg", []report.Flag{report.FlagEKG}},
	{"treadmill", []report.Flag{report.FlagTreadmill}},
	{"audiometry", []report.Flag{report.FlagAudiometry}},
	{"spirometry", []report.Flag{report.FlagSpirometry}},
	{"usg", []report.Flag{report.FlagUSGAbdomen, report.FlagUSGMammae}},
	{"psychology", []report.Flag{report.FlagPsychology}},
	{"conclusion", nil},
}

// StationsFor lists the stations a participant with these packages visits, in
// route order.
func StationsFor(packages []string) []string {
	fs := report.FlagsFor(packages)
	var out []string
	for _, st := range stations {
		if stationOpen(st.flags, fs) {
			out = append(out, st.name)
		}
	}
	return out
}

func stationOpen(flags []report.Flag, fs report.FlagSet) bool {
	if flags == nil {
		return true
	}
	for _, f := range flags {
		if fs.Has(f) {
			return true
		}
	}
	return false
}

func knownStation(name string) ([]report.Flag, bool) {
	for _, st := range stations {
		if st.name == name {
			return st.flags, true
		}
	}
	return nil, false
}

// CheckIn records the participant's arrival at a station. Checking in twice at
// the same station returns the first entry.
func (s *Service) CheckIn(ctx context.Context, id uuid.UUID, station, operator string) (*Checkin, error) {
	station = strings.ToLower(strings.TrimSpace(station))
	flags, ok := knownStation(station)
	if !ok {
		return nil, fmt.Errorf("%w: unknown station %q", ErrValidation, station)
	}

	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !stationOpen(flags, report.FlagsFor(rec.Packages)) {
		return nil, fmt.Errorf("%w: station %q is not part of the purchased packages", ErrValidation, station)
	}

	c := &Checkin{RecordID: id, Station: station}
	if operator != "" {
		c.Operator = &operator
	}
	stored, err := s.checkins.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("store checkin: %w", err)
	}
	s.logger.Info().
		Str("record_id", id.String()).
		Str("station", station).
		Msg("participant checked in")
	return stored, nil
}

func (s *Service) ListCheckins(ctx context.Context, id uuid.UUID) ([]*Checkin, error) {
	if _, err := s.records.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.checkins.ListByRecord(ctx, id)
}

// CheckinURL is the address a station scanner opens for a participant.
func CheckinURL(baseURL string, id uuid.UUID) string {
	return strings.TrimRight(baseURL, "/") + "/checkin/" + id.String()
}

// CheckinQRCode renders the participant's check-in URL as a PNG.
func (s *Service) CheckinQRCode(ctx context.Context, id uuid.UUID, baseURL string, size int) ([]byte, error) {
	if _, err := s.records.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(CheckinURL(baseURL, id), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("generate qr code: %w", err)
	}
	return png, nil
}
