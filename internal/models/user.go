// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package models

import "time"

// User is a display name bound to an identity issued by the gateway or the
// user directory.
type User struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}
