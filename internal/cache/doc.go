// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

/*
Package cache provides an in-process LRU cache with TTL expiry.

The project service keeps user display names here so reading a project
does not hit the user directory for every chat message and annotation
author.

	names := cache.NewLRU[string](4096, 5*time.Minute)
	names.Add("k3x9", "Alice")
	if name, ok := names.Get("k3x9"); ok {
	    // ...
	}

All operations are O(1) and safe for concurrent use. Expired entries are
dropped lazily on access or by CleanupExpired.
*/
package cache
