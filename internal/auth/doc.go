// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

/*
Package auth issues and checks the HS256 admin tokens that guard /api/admin.

Admin routes use Middleware.RequireAdmin, which reads "Authorization: Bearer"
and requires the admin role claim. The panel calls the API with a token it
mints for itself; BearerTransport renews that token before it expires:

	httpClient := auth.NewAdminHTTPClient(jwtManager, "marketpanel", nil)
*/
package auth
