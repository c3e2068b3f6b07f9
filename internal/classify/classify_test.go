package classify

import "testing"

func TestDetectState(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want string
	}{
		{"plain code", "Estou em MT agora", "MT"},
		{"lowercase input", "estou em mt agora", "MT"},
		{"first of several", "Mudei de SP para MG", "SP"},
		{"short words ignored", "Não é em nenhum lugar", ""},
		{"code inside word ignored", "COMPRA DE TRATOR", ""},
		{"accented neighbor ignored", "Após a chegada", ""},
		{"no code", "Minha lavoura está bonita", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectState(tc.text); got != tc.want {
				t.Fatalf("DetectState(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestDetectCategoryPriorityOrder(t *testing.T) {
	t.Parallel()

	// Keywords from two categories: the earlier-listed category wins.
	if got := DetectCategory("tem fungo e praga na soja"); got != "Praga" {
		t.Fatalf("got %q, want Praga", got)
	}
	if got := DetectCategory("muita chuva e falta de adubo"); got != "Clima" {
		t.Fatalf("got %q, want Clima", got)
	}
}

func TestExtractLiteralCases(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text         string
		wantState    string
		wantCategory string
	}{
		{"Estou com uma praga na soja em MT", "MT", "Praga"},
		{"Meu gado está com doença no RS", "RS", "Doença"},
		{"Preciso de adubo para o milho", "", "Nutrição"},
		{"O clima está muito seco em SP", "SP", "Clima"},
	}
	for _, tc := range cases {
		state, category, changed := Extract(tc.text, "", "")
		if state != tc.wantState || category != tc.wantCategory {
			t.Fatalf("Extract(%q) = (%q, %q), want (%q, %q)", tc.text, state, category, tc.wantState, tc.wantCategory)
		}
		if !changed {
			t.Fatalf("Extract(%q) reported no change", tc.text)
		}
	}
}

func TestExtractRegionOnly(t *testing.T) {
	t.Parallel()

	state, category, changed := Extract("Falando de BA hoje", "", "")
	if state != "BA" || category != "" {
		t.Fatalf("got (%q, %q), want (BA, )", state, category)
	}
	if !changed {
		t.Fatal("expected changed")
	}
}

func TestExtractMonotonicNonErasure(t *testing.T) {
	t.Parallel()

	state, category, changed := Extract("bom dia", "MG", "Praga")
	if state != "MG" || category != "Praga" {
		t.Fatalf("stored values cleared: (%q, %q)", state, category)
	}
	if changed {
		t.Fatal("no detection must not report change")
	}
}

func TestExtractSameValueNotChanged(t *testing.T) {
	t.Parallel()

	state, category, changed := Extract("praga em MG", "MG", "Praga")
	if changed {
		t.Fatal("re-detecting the stored values must not report change")
	}
	if state != "MG" || category != "Praga" {
		t.Fatalf("got (%q, %q)", state, category)
	}
}

func TestExtractOverridesDifferentValue(t *testing.T) {
	t.Parallel()

	state, category, changed := Extract("agora a geada chegou em PR", "MG", "Praga")
	if state != "PR" || category != "Clima" {
		t.Fatalf("got (%q, %q), want (PR, Clima)", state, category)
	}
	if !changed {
		t.Fatal("expected changed")
	}
}

func TestExtractEmptyTextNoOp(t *testing.T) {
	t.Parallel()

	state, category, changed := Extract("", "SP", "Clima")
	if state != "SP" || category != "Clima" || changed {
		t.Fatalf("empty text must be a no-op, got (%q, %q, %v)", state, category, changed)
	}
}
