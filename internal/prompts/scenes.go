package prompts

// Scene is one staged-shot definition from the studio catalog.
type Scene struct {
	ID       string
	Label    string
	Fragment string
}

// DefaultScenes is the standard six-shot catalog used when a shoot request
// does not name its own scenes.
var DefaultScenes = []Scene{
	{
		ID:       "marble-pedestal",
		Label:    "Marble pedestal",
		Fragment: "placed on a white Carrara marble pedestal against a softly blurred ivory backdrop, studio key light from the upper left, gentle specular highlights on the metal",
	},
	{
		ID:       "silk-drape",
		Label:    "Silk drape",
		Fragment: "resting on flowing champagne-colored silk fabric with soft folds, warm diffused lighting, shallow depth of field",
	},
	{
		ID:       "botanical",
		Label:    "Botanical",
		Fragment: "staged among fresh white orchid blossoms and eucalyptus sprigs on a pale stone surface, bright natural daylight",
	},
	{
		ID:       "mirror-reflection",
		Label:    "Mirror reflection",
		Fragment: "standing on a black mirrored surface with a crisp reflection, dramatic low-key lighting, dark charcoal background",
	},
	{
		ID:       "editorial-dark",
		Label:    "Editorial dark",
		Fragment: "suspended in a moody editorial composition with deep shadows, a single hard rim light tracing the silhouette, near-black background",
	},
	{
		ID:       "golden-hour",
		Label:    "Golden hour",
		Fragment: "beside a window at golden hour, long warm shadows across a linen tablecloth, sun flare kissing the gemstones",
	},
}

// SceneByID returns the catalog scene with the given id, if present.
func SceneByID(id string) (Scene, bool) {
	for _, s := range DefaultScenes {
		if s.ID == id {
			return s, true
		}
	}
	return Scene{}, false
}
