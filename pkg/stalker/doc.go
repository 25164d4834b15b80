// Package stalker provides a client for Stalker middleware portals as used
// by MAG set-top boxes.
//
// All portal endpoints live under a single script:
//
//	{portalURL}/server/load.php?type={type}&action={action}&...
//
// The portal identifies a client by its MAC address, carried in a Cookie
// header and as a bearer token. Connect discovers the working portal root by
// probing candidate paths ("/c" suffix first) with a handshake request, then
// GetGenres, GetChannels, GetAllChannels and CreateLink operate against the
// discovered root.
//
// Portal deployments vary wildly in their JSON shapes. Listing responses may
// arrive either as {"js":{"data":[...]}} or as {"js":[...]}; both are
// accepted. Channel ids may be numbers or strings, under "id" or "ch_id".
package stalker
