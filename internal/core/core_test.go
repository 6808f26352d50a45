package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tessro/needle/internal/store"
)

func sampleTracks() []Track {
	return []Track{
		{ID: "a", Artist: "Aphex Twin", Album: "Drukqs", Title: "Avril 14th", Year: "2001", Path: "audio/a.mp3"},
		{ID: "b", Artist: "Burial", Title: "Archangel", Year: "2007", Path: "audio/b.mp3"},
		{ID: "c", Path: "audio/c.mp3"},
	}
}

func TestTrackDisplay(t *testing.T) {
	tr := Track{ID: "c", Path: "audio/c.mp3"}
	if got := tr.String(); got != "??? - ???" {
		t.Errorf("String() = %q, want %q", got, "??? - ???")
	}
	if got := tr.DownloadName(); got != "Unknown - Unknown.mp3" {
		t.Errorf("DownloadName() = %q", got)
	}

	tr = Track{Artist: "AC/DC", Title: "Thunderstruck"}
	if got := tr.DownloadName(); got != "AC_DC - Thunderstruck.mp3" {
		t.Errorf("DownloadName() = %q", got)
	}
}

func TestTrackSearchText(t *testing.T) {
	tr := sampleTracks()[0]
	want := "aphex twin drukqs avril 14th 2001"
	if got := tr.SearchText(); got != want {
		t.Errorf("SearchText() = %q, want %q", got, want)
	}
}

func TestCatalog(t *testing.T) {
	tracks := append(sampleTracks(), Track{ID: "a", Title: "dup"}, Track{Title: "no id"})
	c := NewCatalog(tracks)

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	if tr, ok := c.ByID("a"); !ok || tr.Title != "Avril 14th" {
		t.Errorf("ByID(a) = %+v, %v", tr, ok)
	}
	if tr, ok := c.ByPath("audio/b.mp3"); !ok || tr.ID != "b" {
		t.Errorf("ByPath() = %+v, %v", tr, ok)
	}
	if c.Contains("zzz") {
		t.Error("Contains(zzz) = true")
	}

	var nilCatalog *Catalog
	if !nilCatalog.IsEmpty() {
		t.Error("nil catalog should be empty")
	}
}

func TestHeardSetPersistence(t *testing.T) {
	kv := store.NewMemory()

	h := LoadHeardSet(kv)
	if h.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", h.Len())
	}

	h.Add("b")
	h.Add("a")
	if h.Add("a") {
		t.Error("Add() of an existing id should report false")
	}
	if err := h.Save(kv); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, _, _ := kv.Get(HeardKey)
	if raw != `["a","b"]` {
		t.Errorf("persisted = %s", raw)
	}

	loaded := LoadHeardSet(kv)
	if diff := cmp.Diff([]string{"a", "b"}, loaded.IDs()); diff != "" {
		t.Errorf("IDs() mismatch (-want +got):\n%s", diff)
	}
}

func TestHeardSetCorruptEntry(t *testing.T) {
	kv := store.NewMemory()
	_ = kv.Set(HeardKey, "not json")
	if h := LoadHeardSet(kv); h.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for corrupt entry", h.Len())
	}
}

func TestHeardSetCatalogQueries(t *testing.T) {
	c := NewCatalog(sampleTracks())
	h := NewHeardSet()
	h.Add("a")
	h.Add("gone")

	if !h.Prune(c) {
		t.Error("Prune() = false, want true")
	}
	if h.Has("gone") {
		t.Error("Prune() kept an id outside the catalog")
	}

	var unheard []string
	for _, tr := range h.Unheard(c) {
		unheard = append(unheard, tr.ID)
	}
	if diff := cmp.Diff([]string{"b", "c"}, unheard); diff != "" {
		t.Errorf("Unheard() mismatch (-want +got):\n%s", diff)
	}
	if got := h.Percent(c); got != 33 {
		t.Errorf("Percent() = %d, want 33", got)
	}

	h.Add("b")
	h.Add("c")
	if !h.Covers(c) {
		t.Error("Covers() = false, want true")
	}
}

func TestPlayHistory(t *testing.T) {
	h := NewPlayHistory()
	if _, ok := h.Current(); ok {
		t.Fatal("empty history has a current entry")
	}
	if _, ok := h.Back(); ok {
		t.Fatal("Back() on empty history should fail")
	}

	h.Push("a")
	h.Push("b")
	h.Push("c")

	if id, ok := h.Back(); !ok || id != "b" {
		t.Errorf("Back() = %q, %v, want b", id, ok)
	}
	if id, ok := h.Back(); !ok || id != "a" {
		t.Errorf("Back() = %q, %v, want a", id, ok)
	}
	if _, ok := h.Back(); ok {
		t.Error("Back() at start should be a no-op")
	}
	if h.Index() != 0 {
		t.Errorf("Index() = %d, want 0", h.Index())
	}

	if id, ok := h.Forward(); !ok || id != "b" {
		t.Errorf("Forward() = %q, %v, want b", id, ok)
	}

	h.Push("d")
	if diff := cmp.Diff([]string{"a", "b", "d"}, h.IDs()); diff != "" {
		t.Errorf("Push() should truncate forward entries (-want +got):\n%s", diff)
	}
	if h.CanForward() {
		t.Error("CanForward() = true at the end")
	}
	if id, _ := h.Current(); id != "d" {
		t.Errorf("Current() = %q, want d", id)
	}
}

func TestTrackLinkRoundTrip(t *testing.T) {
	paths := []string{
		"audio/a.mp3",
		"audio/Aphex Twin/Drukqs/01 - Jynweythek.mp3",
		"a",
		"ab",
		"audio/??~~>>.mp3",
		"audio/ünïcødé/track.mp3",
	}
	for _, p := range paths {
		encoded := EncodeTrackLink(p)
		for _, r := range encoded {
			if r == '+' || r == '/' || r == '=' {
				t.Errorf("EncodeTrackLink(%q) = %q contains %q", p, encoded, r)
			}
		}
		got, err := DecodeTrackLink("#" + encoded)
		if err != nil {
			t.Fatalf("DecodeTrackLink(%q) error = %v", encoded, err)
		}
		if got != p {
			t.Errorf("round trip = %q, want %q", got, p)
		}
	}
}

func TestDecodeTrackLinkErrors(t *testing.T) {
	for _, in := range []string{"", "#", "!!!"} {
		if _, err := DecodeTrackLink(in); err == nil {
			t.Errorf("DecodeTrackLink(%q) error = nil", in)
		}
	}
}

func TestPlaybackState(t *testing.T) {
	var nilState *PlaybackState
	if nilState.HasTrack() || nilState.NearEnd() || nilState.ProgressPercent() != 0 {
		t.Error("nil state should be empty")
	}

	s := &PlaybackState{Track: &Track{ID: "a"}, Position: 30e9, Duration: 120e9}
	if got := s.ProgressPercent(); got != 25 {
		t.Errorf("ProgressPercent() = %v, want 25", got)
	}
	if s.NearEnd() {
		t.Error("NearEnd() = true at 30s of 120s")
	}
	s.Position = 116e9
	if !s.NearEnd() {
		t.Error("NearEnd() = false at 116s of 120s")
	}
}
