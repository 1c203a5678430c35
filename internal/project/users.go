// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package project

import (
	"context"
	"strings"

	"github.com/tomtom215/modelview/internal/logging"
	"github.com/tomtom215/modelview/internal/models"
)

// CreateUser registers a display name under a freshly minted id.
func (s *Service) CreateUser(ctx context.Context, name string) (models.User, error) {
	u := models.User{UserID: s.newID(), Name: strings.TrimSpace(name), UpdatedAt: s.now()}
	if err := s.store.UpsertUser(ctx, u); err != nil {
		return models.User{}, err
	}
	s.names.Add(u.UserID, u.Name)
	return u, nil
}

// GetUser looks up a user by id.
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.store.GetUser(ctx, userID)
}

// SetUserName creates or renames the user with userID.
func (s *Service) SetUserName(ctx context.Context, userID, name string) (models.User, error) {
	u := models.User{UserID: userID, Name: strings.TrimSpace(name), UpdatedAt: s.now()}
	if err := s.store.UpsertUser(ctx, u); err != nil {
		return models.User{}, err
	}
	s.names.Add(userID, u.Name)
	logging.Ctx(ctx).Debug().Str("user_id", userID).Msg("User name set")
	return u, nil
}
