package localization

import "testing"

func TestLookupFallsBackToDefault(t *testing.T) {
	for _, code := range []string{"XX", "", "klingon"} {
		e, ok := Lookup(code)
		if ok {
			t.Fatalf("%q: expected fallback", code)
		}
		if e.Code != DefaultLanguage {
			t.Fatalf("%q: got code %q, want %q", code, e.Code, DefaultLanguage)
		}
		if e.ErrorPhrase != "Something went wrong, try again" {
			t.Fatalf("%q: unexpected error phrase %q", code, e.ErrorPhrase)
		}
	}
}

func TestLookupNormalizesCode(t *testing.T) {
	e, ok := Lookup(" es ")
	if !ok || e.Code != "ES" {
		t.Fatalf("got %+v ok=%v", e, ok)
	}
	if e.ProcessingPhrase != "Un momento..." {
		t.Fatalf("unexpected processing phrase %q", e.ProcessingPhrase)
	}
}

func TestEveryEntryIsComplete(t *testing.T) {
	codes := Codes()
	if len(codes) != 13 {
		t.Fatalf("expected 13 languages, got %d", len(codes))
	}
	for _, c := range codes {
		e, ok := Lookup(c)
		if !ok {
			t.Fatalf("%s not found", c)
		}
		if e.VoiceID == "" || e.PromptText == "" || e.UILabel == "" || e.ProcessingPhrase == "" || e.ErrorPhrase == "" {
			t.Errorf("%s has an empty field: %+v", c, e)
		}
	}
}
