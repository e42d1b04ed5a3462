package core

import "testing"

func TestParseArtifactReference(t *testing.T) {
	ref, err := ParseArtifactReference("flock-io/comp-1-data:a1b2c3d4:c1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ref.Namespace != "flock-io/comp-1-data" || ref.ContentHash != "a1b2c3d4" || ref.CompetitionID != "c1" {
		t.Fatalf("unexpected reference: %+v", ref)
	}
	if got := ref.Compressed(); got != "flock-io/comp-1-data:a1b2c3d4:c1" {
		t.Fatalf("round trip mismatch: %s", got)
	}
}

func TestParseArtifactReference_Malformed(t *testing.T) {
	cases := []string{
		"",
		"just-a-namespace",
		"ns:hash",
		"ns:hash:comp:extra",
		"ns::comp",
		":hash:comp",
	}
	for _, c := range cases {
		if _, err := ParseArtifactReference(c); err == nil {
			t.Errorf("expected error for %q", c)
		}
	}
}

func TestEvalRecordTerminalOnce(t *testing.T) {
	rec := NewEvalRecord(Participant{UID: 7, Hotkey: "hk7"})
	if rec.Terminal() {
		t.Fatal("fresh record must be pending")
	}

	rec.MarkScored(0.42)
	rec.MarkFailed(ReasonScoringFailed)
	rec.MarkSkipped(ReasonDuplicateContent)

	if rec.Status != StatusScored || rec.Score != 0.42 {
		t.Fatalf("terminal status was overwritten: %+v", rec)
	}
}

func TestEvalRecordSkipKeepsZeroScore(t *testing.T) {
	rec := NewEvalRecord(Participant{UID: 1})
	rec.MarkSkipped(ReasonNoCommitment)
	if rec.Status != StatusSkipped || rec.Score != 0 || rec.Reason != ReasonNoCommitment {
		t.Fatalf("unexpected record: %+v", rec)
	}
}
