// Package protocol defines the frames exchanged over a storefront live
// channel.
//
// Every WebSocket text message carries exactly one JSON frame. The "type"
// field selects which payload is present:
//
//	Server → Client:
//	  {"type":"toast","toast":{"text":"Saved","background":"#38a169","visible":true}}
//	  {"type":"flash","flash":{"index":0,"state":"shown"}}
//	  {"type":"ui","ui":{"theme":"dark","menuOpen":false,...}}
//	  {"type":"command","command":{"name":"print"}}
//	  {"type":"pong"}
//	  {"type":"error","error":{"code":2,"message":"Invalid event"}}
//
//	Client → Server:
//	  {"type":"ready","ready":{"flash":3}}
//	  {"type":"event","event":{"name":"faq.toggle","value":"2"}}
//	  {"type":"ping"}
//
// The page sends ready once, after it has discovered the flash items it was
// rendered with. Events carry the names understood by package page.
package protocol
