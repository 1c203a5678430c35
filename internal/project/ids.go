// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package project

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// IDLength is the length of generated project and user ids.
const IDLength = 12

// 36^12 fits in a uint64.
const idSpace = 4738381338321616896

// NewID returns a random lowercase base-36 token of IDLength characters.
func NewID() string {
	u := uuid.New()
	n := binary.BigEndian.Uint64(u[8:]) % idSpace
	s := strconv.FormatUint(n, 36)
	if len(s) < IDLength {
		s = strings.Repeat("0", IDLength-len(s)) + s
	}
	return s
}
