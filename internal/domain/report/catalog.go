package report

import "strings"

// Flag is an examination capability a package unlocks, on the entry form and
// in the printed report.
type Flag string

const (
	FlagHematology Flag = "hematology"
	FlagChemistry  Flag = "chemistry"
	FlagUrinalysis Flag = "urinalysis"
	FlagRadiology  Flag = "radiology"
	FlagEKG        Flag = "ekg"
	FlagAudiometry Flag = "audiometry"
	FlagSpirometry Flag = "spirometry"
	FlagUSGAbdomen Flag = "usg_abdomen"
	FlagUSGMammae  Flag = "usg_mammae"
	FlagTreadmill  Flag = "treadmill"
	FlagPsychology Flag = "psychology"
	FlagFramingham Flag = "framingham"
)

// flagOrder is the canonical order used when listing flags.
var flagOrder = []Flag{
	FlagHematology, FlagUrinalysis, FlagChemistry, FlagRadiology, FlagEKG,
	FlagAudiometry, FlagSpirometry, FlagUSGAbdomen, FlagUSGMammae,
	FlagTreadmill, FlagPsychology, FlagFramingham,
}

// Package is a purchasable bundle or single add-on examination.
type Package struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Bundle   bool     `json:"bundle"`
	Triggers []string `json:"triggers"`
	Flags    []Flag   `json:"flags"`
}

var catalog = []Package{
	{
		ID: "mcu_regular", Label: "MCU Regular", Bundle: true,
		Triggers: []string{"mcu regular"},
		Flags:    []Flag{FlagHematology, FlagUrinalysis, FlagChemistry, FlagRadiology, FlagEKG},
	},
	{
		ID: "mcu_eksekutif", Label: "MCU Eksekutif", Bundle: true,
		Triggers: []string{"mcu eksekutif", "mcu executive"},
		Flags: []Flag{
			FlagHematology, FlagUrinalysis, FlagChemistry, FlagRadiology, FlagEKG,
			FlagAudiometry, FlagSpirometry, FlagUSGAbdomen, FlagUSGMammae,
			FlagTreadmill, FlagPsychology, FlagFramingham,
		},
	},
	{
		ID: "mcu_akhir", Label: "MCU Akhir", Bundle: true,
		Triggers: []string{"mcu akhir"},
		Flags: []Flag{
			FlagHematology, FlagUrinalysis, FlagChemistry, FlagRadiology, FlagEKG,
			FlagAudiometry, FlagSpirometry,
		},
	},
	{ID: "hematologi", Label: "Hematologi", Triggers: []string{"hematologi", "darah lengkap"}, Flags: []Flag{FlagHematology}},
	{ID: "urinalisa", Label: "Urinalisa", Triggers: []string{"urinalisa", "urinalisis"}, Flags: []Flag{FlagUrinalysis}},
	{ID: "kimia_darah", Label: "Kimia Darah", Triggers: []string{"kimia darah"}, Flags: []Flag{FlagChemistry}},
	{ID: "panel_hepatitis", Label: "Panel Hepatitis", Triggers: []string{"panel hepatitis"}, Flags: []Flag{FlagChemistry}},
	{ID: "biomonitoring", Label: "Biomonitoring", Triggers: []string{"biomonitoring"}, Flags: []Flag{FlagChemistry}},
	{ID: "radiologi_thoraks", Label: "Radiologi Thoraks", Triggers: []string{"radiologi thoraks", "rontgen thoraks"}, Flags: []Flag{FlagRadiology}},
	{ID: "ekg", Label: "EKG", Triggers: []string{"ekg"}, Flags: []Flag{FlagEKG}},
	{ID: "treadmill", Label: "Treadmill", Triggers: []string{"treadmill"}, Flags: []Flag{FlagTreadmill}},
	{ID: "usg_whole_abdomen", Label: "USG Whole Abdomen", Triggers: []string{"usg whole abdomen", "usg abdomen"}, Flags: []Flag{FlagUSGAbdomen}},
	{ID: "usg_mammae", Label: "USG Mammae", Triggers: []string{"usg mammae"}, Flags: []Flag{FlagUSGMammae}},
	{ID: "audiometri", Label: "Audiometri", Triggers: []string{"audiometri", "audiometry"}, Flags: []Flag{FlagAudiometry}},
	{ID: "spirometri", Label: "Spirometri", Triggers: []string{"spirometri", "spirometry"}, Flags: []Flag{FlagSpirometry}},
	{ID: "tes_psikologi", Label: "Tes Psikologi", Triggers: []string{"tes psikologi", "psikologi"}, Flags: []Flag{FlagPsychology}},
	{ID: "framingham", Label: "Framingham Risk Score", Triggers: []string{"framingham"}, Flags: []Flag{FlagFramingham}},
}

// triggerIndex maps a normalised trigger to the flags it unlocks. Built once.
var (
	triggerIndex = map[string][]Flag{}
	packageIndex = map[string]Package{}
)

func init() {
	for _, p := range catalog {
		keys := append([]string{p.ID, p.Label}, p.Triggers...)
		for _, k := range keys {
			n := Normalize(k)
			triggerIndex[n] = append(triggerIndex[n], p.Flags...)
			packageIndex[n] = p
		}
	}
}

// Catalog returns a copy of the package catalog.
func Catalog() []Package {
	out := make([]Package, len(catalog))
	for i, p := range catalog {
		p.Triggers = append([]string(nil), p.Triggers...)
		p.Flags = append([]Flag(nil), p.Flags...)
		out[i] = p
	}
	return out
}

// LookupPackage resolves an identifier, label or trigger to its catalog entry.
func LookupPackage(id string) (Package, bool) {
	p, ok := packageIndex[Normalize(id)]
	return p, ok
}

// CanonicalID returns the catalog ID for a known identifier, label or trigger.
// Anything else comes back normalised in ID form ("MCU Platinum" becomes
// "mcu_platinum") with ok false.
func CanonicalID(s string) (id string, ok bool) {
	if p, found := LookupPackage(s); found {
		return p.ID, true
	}
	return strings.ReplaceAll(Normalize(s), " ", "_"), false
}

var separators = strings.NewReplacer("_", " ", "-", " ")

// Normalize lower-cases an identifier and folds underscores, dashes and runs of
// whitespace into single spaces, so "MCU_Regular" and "mcu regular" compare equal.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(separators.Replace(s))), " ")
}

// FlagSet is the set of flags unlocked by a purchase.
type FlagSet map[Flag]struct{}

func (fs FlagSet) Has(f Flag) bool {
	_, ok := fs[f]
	return ok
}

// Ordered lists the set in canonical flag order.
func (fs FlagSet) Ordered() []Flag {
	out := make([]Flag, 0, len(fs))
	for _, f := range flagOrder {
		if fs.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// FlagsFor ORs the flags of every recognised entry in packages. Unknown
// identifiers contribute nothing.
func FlagsFor(packages []string) FlagSet {
	fs := FlagSet{}
	for _, p := range packages {
		for _, f := range triggerIndex[Normalize(p)] {
			fs[f] = struct{}{}
		}
	}
	return fs
}
