package llmjson

import "testing"

type shape struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func TestDecodeStrictJSON(t *testing.T) {
	var v shape
	if err := Decode(`{"name":"acme","score":7}`, &v); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v.Name != "acme" || v.Score != 7 {
		t.Fatalf("unexpected value: %+v", v)
	}
}

func TestDecodeFencedJSON(t *testing.T) {
	raw := "```json\n{\"name\":\"acme\",\"score\":7}\n```"
	var v shape
	if err := Decode(raw, &v); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v.Name != "acme" {
		t.Fatalf("unexpected name: %q", v.Name)
	}
}

func TestDecodeFenceWithoutLanguageTag(t *testing.T) {
	raw := "```\n{\"name\":\"acme\",\"score\":1}\n```"
	var v shape
	if err := Decode(raw, &v); err != nil {
		t.Fatalf("Decode: %v", err)
	}
}

func TestDecodeProseWrappedObject(t *testing.T) {
	raw := "Sure! Here is the analysis you asked for:\n{\"name\":\"acme\",\"score\":3}\nLet me know if you need anything else."
	var v shape
	if err := Decode(raw, &v); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v.Score != 3 {
		t.Fatalf("unexpected score: %d", v.Score)
	}
}

func TestDecodeProseWrappedArray(t *testing.T) {
	raw := "Here are the companies:\n[{\"name\":\"a\",\"score\":1},{\"name\":\"b\",\"score\":2}]\nDone."
	var v []shape
	if err := Decode(raw, &v); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(v) != 2 || v[1].Name != "b" {
		t.Fatalf("unexpected value: %+v", v)
	}
}

func TestDecodeEmptyResponse(t *testing.T) {
	var v shape
	if err := Decode("   ", &v); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestDecodeGarbage(t *testing.T) {
	var v shape
	if err := Decode("the model refused to answer", &v); err == nil {
		t.Fatal("expected error for unparseable input")
	}
}

func TestDecodeOrFallback(t *testing.T) {
	v := shape{}
	called := false
	DecodeOr("not json at all", &v, func() {
		called = true
		v = shape{Name: "default", Score: 50}
	})
	if !called {
		t.Fatal("fallback not invoked")
	}
	if v.Name != "default" || v.Score != 50 {
		t.Fatalf("fallback value not applied: %+v", v)
	}
}

func TestDecodeOrSuccessSkipsFallback(t *testing.T) {
	v := shape{}
	DecodeOr(`{"name":"real","score":9}`, &v, func() {
		t.Fatal("fallback should not run on valid input")
	})
	if v.Name != "real" {
		t.Fatalf("unexpected value: %+v", v)
	}
}

func TestStripCodeFencesPassthrough(t *testing.T) {
	if got := StripCodeFences(`{"a":1}`); got != `{"a":1}` {
		t.Fatalf("unexpected: %q", got)
	}
}
