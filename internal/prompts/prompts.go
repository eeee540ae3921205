package prompts

import (
	"fmt"
	"strings"
)

// AnalysisSystemPrompt primes the model as an appraiser before the JSON task.
const AnalysisSystemPrompt = `You are a master jeweler and gemologist appraising a product photograph for a commercial photo shoot. Be precise and factual. Describe only what is visible in the photo; do not invent hallmarks, carat weights, or provenance.`

// AnalysisPrompt is the strict-JSON analysis task sent with the product photo.
const AnalysisPrompt = `Analyze the jewelry item in this photo and return a JSON object with exactly these fields:

{
  "item_type": "ring|necklace|bracelet|earrings|brooch|watch|other",
  "materials": ["metal or material, e.g. 18k yellow gold"],
  "gemstones": [{"name": "stone name", "cut": "cut if visible", "color": "color"}],
  "style": "one phrase, e.g. art deco, minimalist, vintage",
  "setting": "setting type if applicable, e.g. prong, bezel, pave",
  "color_palette": ["dominant colors of the piece"],
  "craftsmanship": "1-2 sentences on notable detailing visible in the photo",
  "marketing_line": "One elegant sentence suitable for a product page",
  "wear_position": "where on the body the item is worn, e.g. ring finger, neckline"
}

Omit nothing; use empty strings or arrays when a field is not discernible.`

// BuildOptions tunes the composed render prompts.
type BuildOptions struct {
	// ItemSize is the user-stated physical size hint, e.g. "band width 4mm".
	ItemSize string
	// EngraveLogo asks the renderer to place the brand logo (attached as a
	// reference image) subtly in the scene.
	EngraveLogo bool
}

const preserveItem = "Reproduce the jewelry item from the reference photo exactly: same shape, materials, gemstones, proportions and detailing. Do not restyle or replace the item."

// BuildScenePrompt composes the render prompt for one staged scene.
// itemDescription is derived from the analysis (type, materials, style).
func BuildScenePrompt(itemDescription string, scene Scene, opts BuildOptions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Professional jewelry product photograph of %s, %s. ", itemDescription, scene.Fragment)
	b.WriteString(preserveItem)
	if opts.ItemSize != "" {
		fmt.Fprintf(&b, " Render at a realistic physical scale: %s.", opts.ItemSize)
	}
	if opts.EngraveLogo {
		b.WriteString(" Place the brand logo from the second reference image subtly in the scene, as a small embossed mark on a display card or surface, never on the jewelry itself.")
	}
	b.WriteString(" Photorealistic, 8k, sharp focus on the item, commercial catalog quality.")
	return b.String()
}

// BuildTryOnPrompt composes the virtual try-on prompt. The request attaches
// the product photo first, then the model photo.
func BuildTryOnPrompt(itemDescription, wearPosition string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Composite the jewelry item from the first reference photo onto the person in the second reference photo, worn naturally")
	if wearPosition != "" {
		fmt.Fprintf(&b, " on the %s", wearPosition)
	}
	b.WriteString(". ")
	if itemDescription != "" {
		fmt.Fprintf(&b, "The item is %s. ", itemDescription)
	}
	b.WriteString(preserveItem)
	b.WriteString(" Keep the person's face, pose, skin tone and lighting unchanged; match the item's lighting and shadows to the scene. Photorealistic.")
	return b.String()
}

// BuildEditPrompt composes a refinement prompt over a prior render.
func BuildEditPrompt(instruction string) string {
	var b strings.Builder
	b.WriteString("Edit the attached photograph: ")
	b.WriteString(strings.TrimSpace(instruction))
	if !strings.HasSuffix(instruction, ".") {
		b.WriteString(".")
	}
	b.WriteString(" Change only what the instruction asks for. ")
	b.WriteString(preserveItem)
	return b.String()
}

// ItemDescription flattens analysis fields into a one-line description used
// inside render prompts.
func ItemDescription(itemType, style string, materials []string) string {
	parts := []string{}
	if style != "" {
		parts = append(parts, style)
	}
	if itemType != "" {
		parts = append(parts, itemType)
	} else {
		parts = append(parts, "jewelry piece")
	}
	desc := strings.Join(parts, " ")
	if len(materials) > 0 {
		desc += " in " + strings.Join(materials, " and ")
	}
	return desc
}
