// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package websocket

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/modelview/internal/validation"
)

// MintIdentity returns a new opaque user id: user_<random>_<unix millis>.
func MintIdentity(now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return "user_" + random + "_" + strconv.FormatInt(now.UnixMilli(), 10)
}

// ResolveIdentity returns presented when it is a well-formed id, so a
// reconnecting browser keeps its identity. Otherwise it mints a new one.
func ResolveIdentity(presented string, now time.Time) (id string, minted bool) {
	presented = strings.TrimSpace(presented)
	if validation.ValidIdentity(presented) {
		return presented, false
	}
	return MintIdentity(now), true
}
