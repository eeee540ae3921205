package prompts

import (
	"strings"
	"testing"
)

func TestDefaultScenesCatalog(t *testing.T) {
	if len(DefaultScenes) != 6 {
		t.Fatalf("catalog size = %d, want 6", len(DefaultScenes))
	}
	seen := map[string]bool{}
	for _, s := range DefaultScenes {
		if s.ID == "" || s.Label == "" || s.Fragment == "" {
			t.Errorf("scene %q has empty fields", s.ID)
		}
		if seen[s.ID] {
			t.Errorf("duplicate scene id %q", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestSceneByID(t *testing.T) {
	s, ok := SceneByID("silk-drape")
	if !ok {
		t.Fatal("silk-drape not found")
	}
	if s.Label != "Silk drape" {
		t.Errorf("Label = %q", s.Label)
	}

	if _, ok := SceneByID("nope"); ok {
		t.Error("unknown id should not resolve")
	}
}

func TestBuildScenePrompt(t *testing.T) {
	scene, _ := SceneByID("marble-pedestal")
	p := BuildScenePrompt("art deco ring in platinum", scene, BuildOptions{
		ItemSize:    "band width 3mm",
		EngraveLogo: true,
	})

	for _, want := range []string{
		"art deco ring in platinum",
		"marble pedestal",
		"band width 3mm",
		"brand logo",
		"Do not restyle or replace the item",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestBuildScenePromptWithoutOptions(t *testing.T) {
	scene, _ := SceneByID("botanical")
	p := BuildScenePrompt("necklace", scene, BuildOptions{})
	if strings.Contains(p, "logo") {
		t.Error("logo instruction should be absent when not requested")
	}
	if strings.Contains(p, "realistic physical scale") {
		t.Error("size hint should be absent when not given")
	}
}

func TestBuildTryOnPrompt(t *testing.T) {
	p := BuildTryOnPrompt("pearl necklace", "neckline")
	if !strings.Contains(p, "neckline") {
		t.Errorf("wear position missing: %s", p)
	}
	if !strings.Contains(p, "Keep the person's face") {
		t.Errorf("identity-preservation constraint missing: %s", p)
	}
}

func TestBuildEditPrompt(t *testing.T) {
	p := BuildEditPrompt("make the background warmer")
	if !strings.Contains(p, "make the background warmer.") {
		t.Errorf("instruction not terminated: %s", p)
	}
	if !strings.Contains(p, "Change only what the instruction asks for") {
		t.Errorf("scope constraint missing: %s", p)
	}
}

func TestItemDescription(t *testing.T) {
	got := ItemDescription("ring", "vintage", []string{"18k gold", "silver"})
	want := "vintage ring in 18k gold and silver"
	if got != want {
		t.Errorf("ItemDescription = %q, want %q", got, want)
	}

	if got := ItemDescription("", "", nil); got != "jewelry piece" {
		t.Errorf("empty analysis fallback = %q", got)
	}
}
