// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package models

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestNewProjectDefaults(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := NewProject("abc123", "", now)

	if p.Title != DefaultProjectTitle {
		t.Errorf("Title = %q, want %q", p.Title, DefaultProjectTitle)
	}
	if p.Camera.Position != (Vector3{Z: 5}) {
		t.Errorf("camera position = %+v, want (0,0,5)", p.Camera.Position)
	}
	if p.ModelTransform.Scale != (Vector3{X: 1, Y: 1, Z: 1}) {
		t.Errorf("scale = %+v, want unit scale", p.ModelTransform.Scale)
	}
	if p.ChatLog == nil || p.Annotations == nil {
		t.Error("chat log and annotations must be empty, not nil")
	}
	if !p.CreatedAt.Equal(now) || !p.UpdatedAt.Equal(now) {
		t.Error("timestamps not set from now")
	}
}

func TestTransformPatchApply(t *testing.T) {
	t.Parallel()

	base := IdentityTransform()
	origin := Vector3{X: 1, Y: 2, Z: 3}

	tests := []struct {
		name  string
		patch TransformPatch
		want  ModelTransform
		empty bool
	}{
		{"empty", TransformPatch{}, base, true},
		{"origin only", TransformPatch{Origin: &origin}, ModelTransform{Origin: origin, Scale: base.Scale}, false},
		{"full", FullPatch(ModelTransform{Origin: origin, Scale: origin, Rotation: origin}), ModelTransform{Origin: origin, Scale: origin, Rotation: origin}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.patch.Apply(base); got != tt.want {
				t.Errorf("Apply() = %+v, want %+v", got, tt.want)
			}
			if tt.patch.Empty() != tt.empty {
				t.Errorf("Empty() = %v, want %v", tt.patch.Empty(), tt.empty)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	p := NewProject("p1", "t", time.Now())
	p.ChatLog = append(p.ChatLog, ChatMessage{UserID: "u", Message: "hi"})
	p.Annotations = append(p.Annotations, Annotation{ID: "a", Text: "x"})

	c := p.Clone()
	c.ChatLog[0].Message = "changed"
	c.Annotations[0].Text = "changed"
	c.Camera.Position.X = 9

	if p.ChatLog[0].Message != "hi" || p.Annotations[0].Text != "x" || p.Camera.Position.X != 0 {
		t.Error("mutating the clone leaked into the original")
	}
	if (*Project)(nil).Clone() != nil {
		t.Error("nil Clone should be nil")
	}
}

func TestAnnotationID(t *testing.T) {
	t.Parallel()

	ts := time.UnixMilli(1700000000123)
	if got := AnnotationID("user_x", ts); got != "user_x-1700000000123" {
		t.Errorf("AnnotationID() = %q", got)
	}

	p := &Project{Annotations: []Annotation{{ID: "a"}, {ID: "b"}}}
	if p.AnnotationIndex("b") != 1 || p.AnnotationIndex("zz") != -1 {
		t.Error("AnnotationIndex lookup failed")
	}
}

func TestProjectUpdateWireFormat(t *testing.T) {
	t.Parallel()

	u := ProjectUpdate{ProjectID: "p1", Kind: KindCamera, Timestamp: time.Unix(0, 0).UTC()}
	b, err := json.Marshal(u)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if !strings.Contains(s, `"kind":"camera"`) || !strings.Contains(s, `"projectId":"p1"`) {
		t.Errorf("unexpected encoding %s", s)
	}
	if strings.Contains(s, "originUserId") {
		t.Errorf("empty origin should be omitted: %s", s)
	}
}

func TestChangeKindValid(t *testing.T) {
	t.Parallel()

	for _, k := range []ChangeKind{KindChat, KindAnnotation, KindCamera, KindSTL, KindModelTransform, KindTitle} {
		if !k.Valid() {
			t.Errorf("%q should be valid", k)
		}
	}
	if ChangeKind("nope").Valid() {
		t.Error("unknown kind reported valid")
	}
}
