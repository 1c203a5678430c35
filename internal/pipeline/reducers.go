// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package pipeline

import "github.com/tomtom215/modelview/internal/models"

// Reducers never modify prev; each returns a fresh copy, or nil for a nil
// document.

func ReduceCamera(prev *models.Project, cam models.Camera) *models.Project {
	if prev == nil {
		return nil
	}
	next := prev.Clone()
	next.Camera = cam
	return next
}

// ReduceTransform applies only the fields present in patch.
func ReduceTransform(prev *models.Project, patch models.TransformPatch) *models.Project {
	if prev == nil {
		return nil
	}
	next := prev.Clone()
	next.ModelTransform = patch.Apply(next.ModelTransform)
	return next
}

// ReduceSetTransform replaces the whole transform.
func ReduceSetTransform(prev *models.Project, t models.ModelTransform) *models.Project {
	return ReduceTransform(prev, models.FullPatch(t))
}

func ReduceAppendChat(prev *models.Project, msg models.ChatMessage) *models.Project {
	if prev == nil {
		return nil
	}
	next := prev.Clone()
	next.ChatLog = append(next.ChatLog, msg)
	return next
}

// ReduceRemoveChat drops the last entry equal to msg.
func ReduceRemoveChat(prev *models.Project, msg models.ChatMessage) *models.Project {
	if prev == nil {
		return nil
	}
	next := prev.Clone()
	for i := len(next.ChatLog) - 1; i >= 0; i-- {
		m := next.ChatLog[i]
		if m.UserID == msg.UserID && m.Message == msg.Message && m.Timestamp.Equal(msg.Timestamp) {
			next.ChatLog = append(next.ChatLog[:i], next.ChatLog[i+1:]...)
			break
		}
	}
	return next
}

func ReduceAddAnnotation(prev *models.Project, ann models.Annotation) *models.Project {
	if prev == nil {
		return nil
	}
	next := prev.Clone()
	next.Annotations = append(next.Annotations, ann)
	return next
}

// ReduceEditAnnotation sets the text of the annotation with id. Unknown ids
// leave the document unchanged.
func ReduceEditAnnotation(prev *models.Project, id, text string) *models.Project {
	if prev == nil {
		return nil
	}
	next := prev.Clone()
	if i := next.AnnotationIndex(id); i >= 0 {
		next.Annotations[i].Text = text
	}
	return next
}

// ReduceReplaceAnnotation puts ann back in place of the element with the same id.
func ReduceReplaceAnnotation(prev *models.Project, ann models.Annotation) *models.Project {
	if prev == nil {
		return nil
	}
	next := prev.Clone()
	if i := next.AnnotationIndex(ann.ID); i >= 0 {
		next.Annotations[i] = ann
	}
	return next
}

func ReduceDeleteAnnotation(prev *models.Project, id string) *models.Project {
	if prev == nil {
		return nil
	}
	next := prev.Clone()
	if i := next.AnnotationIndex(id); i >= 0 {
		next.Annotations = append(next.Annotations[:i], next.Annotations[i+1:]...)
	}
	return next
}

// ReduceInsertAnnotation reinserts ann at index i, clamped to the list bounds.
func ReduceInsertAnnotation(prev *models.Project, i int, ann models.Annotation) *models.Project {
	if prev == nil {
		return nil
	}
	next := prev.Clone()
	if next.AnnotationIndex(ann.ID) >= 0 {
		return next
	}
	if i < 0 {
		i = 0
	}
	if i > len(next.Annotations) {
		i = len(next.Annotations)
	}
	next.Annotations = append(next.Annotations, models.Annotation{})
	copy(next.Annotations[i+1:], next.Annotations[i:])
	next.Annotations[i] = ann
	return next
}
