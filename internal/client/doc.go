// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

/*
Package client is the Go SDK for a Modelview server.

It has two halves:

  - Client issues the RPC calls (project CRUD and mutations, user
    directory) over HTTP. Every call runs through a sony/gobreaker circuit
    breaker so an unreachable server fails fast with ErrCircuitOpen
    instead of stacking timeouts. Client errors (4xx) do not count
    against the breaker.
  - Socket holds the duplex connection: it receives the assigned user id,
    joins and leaves project rooms with acknowledged requests, and
    delivers projectUpdate notifications on a channel.

Follow ties the two together for one project: it joins the room and
hands every update for that project to a callback, which typically
refetches the document.

	c := client.New(client.Config{BaseURL: "http://localhost:3001"})
	sock, err := client.Dial(ctx, "ws://localhost:3001/ws", savedUserID)
	if err != nil {
	    return err
	}
	defer sock.Close()

	err = client.Follow(ctx, sock, projectID, func(ctx context.Context, u models.ProjectUpdate) {
	    doc, _ := c.Get(ctx, projectID)
	    render(doc)
	})
*/
package client
