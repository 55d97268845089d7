// Package httpapi exposes the stateless subtitle operations over HTTP:
//
//	GET  /healthz
//	POST /v1/convert    re-encode a document
//	POST /v1/merge      build a bilingual document
//	POST /v1/style      validate a style and plan a burn-in command
//	POST /v1/translate  translate a document
//
// /v1 routes require "Authorization: Bearer <api.token>" when a token is
// configured. Errors are JSON objects with an "error" field.
package httpapi
