package report

// SectionID names one rendered part of the MCU report.
type SectionID string

const (
	SectionCover         SectionID = "cover"
	SectionIdentity      SectionID = "identity"
	SectionHealthHistory SectionID = "health_history"
	SectionDASS          SectionID = "dass"
	SectionFAS           SectionID = "fas"
	SectionConsent       SectionID = "consent"
	SectionHematology    SectionID = "hematology"
	SectionUrinalysis    SectionID = "urinalysis"
	SectionChemistry     SectionID = "chemistry"
	SectionRadiology     SectionID = "radiology"
	SectionEKG           SectionID = "ekg"
	SectionAudiometry    SectionID = "audiometry"
	SectionSpirometry    SectionID = "spirometry"
	SectionUSGAbdomen    SectionID = "usg_abdomen"
	SectionUSGMammae     SectionID = "usg_mammae"
	SectionConclusion    SectionID = "conclusion"
)

// Presence carries the data-presence gates of the questionnaire sections.
type Presence struct {
	DASS    bool `json:"dass"`
	FAS     bool `json:"fas"`
	Consent bool `json:"consent"`
}

type sectionRule struct {
	id      SectionID
	title   string
	include func(FlagSet, Presence) bool
}

func always(FlagSet, Presence) bool { return true }

func unlockedBy(f Flag) func(FlagSet, Presence) bool {
	return func(fs FlagSet, _ Presence) bool { return fs.Has(f) }
}

// sectionOrder is the fixed print order. Conclusion must stay last.
var sectionOrder = []sectionRule{
	{SectionCover, "Sampul", always},
	{SectionIdentity, "Identitas Peserta", always},
	{SectionHealthHistory, "Riwayat Kesehatan", always},
	{SectionDASS, "DASS-21", func(_ FlagSet, p Presence) bool { return p.DASS }},
	{SectionFAS, "Fatigue Assessment Scale", func(_ FlagSet, p Presence) bool { return p.FAS }},
	{SectionConsent, "Persetujuan", func(_ FlagSet, p Presence) bool { return p.Consent }},
	{SectionHematology, "Hematologi", unlockedBy(FlagHematology)},
	{SectionUrinalysis, "Urinalisa", unlockedBy(FlagUrinalysis)},
	{SectionChemistry, "Kimia Darah", unlockedBy(FlagChemistry)},
	{SectionRadiology, "Radiologi", unlockedBy(FlagRadiology)},
	{SectionEKG, "EKG", unlockedBy(FlagEKG)},
	{SectionAudiometry, "Audiometri", unlockedBy(FlagAudiometry)},
	{SectionSpirometry, "Spirometri", unlockedBy(FlagSpirometry)},
	{SectionUSGAbdomen, "USG Whole Abdomen", unlockedBy(FlagUSGAbdomen)},
	{SectionUSGMammae, "USG Mammae", unlockedBy(FlagUSGMammae)},
	{SectionConclusion, "Kesimpulan", always},
}

// SelectSections returns the report sections for a purchase in print order.
// Examination sections follow the purchased packages; the DASS, FAS and consent
// pages follow presence alone.
func SelectSections(packages []string, presence Presence) []SectionID {
	fs := FlagsFor(packages)
	out := make([]SectionID, 0, len(sectionOrder))
	for _, r := range sectionOrder {
		if r.include(fs, presence) {
			out = append(out, r.id)
		}
	}
	return out
}

// FormSections lists the result-entry sections shown for a purchase.
func FormSections(packages []string) []Flag {
	return FlagsFor(packages).Ordered()
}

// Title returns the printed heading for a section.
func Title(id SectionID) string {
	for _, r := range sectionOrder {
		if r.id == id {
			return r.title
		}
	}
	return string(id)
}
