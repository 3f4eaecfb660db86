package storage

import "testing"

func TestBuildVIPImagePath(t *testing.T) {
	path, err := BuildObjectPath(PurposeVIPImage, PathParams{
		LeadID:    "lead-42",
		ImageID:   "p1",
		Extension: ".JPEG",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "vip-images/lead-42/p1.jpeg"
	if path != expected {
		t.Fatalf("expected %s, got %s", expected, path)
	}
}

func TestBuildVIPImagePathDefaultsExtension(t *testing.T) {
	path, err := BuildObjectPath(PurposeVIPImage, PathParams{LeadID: "lead-42", ImageID: "m2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "vip-images/lead-42/m2.png" {
		t.Fatalf("unexpected path %s", path)
	}
}

func TestBuildObjectPathRejectsInvalidSegment(t *testing.T) {
	_, err := BuildObjectPath(PurposeVIPImage, PathParams{
		LeadID:  "../bad",
		ImageID: "p1",
	})
	if err == nil {
		t.Fatalf("expected error for invalid segment")
	}
	if _, err := BuildObjectPath(AssetPurpose("unknown"), PathParams{}); err == nil {
		t.Fatalf("expected error for unknown purpose")
	}
}
