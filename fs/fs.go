// Package appfs embeds the application's non-code assets: SQL migrations and
// email templates.
package appfs

import "embed"

// The template glob is explicit because bare directory patterns skip
// underscore-prefixed files, which would leave out the base mail template.
//
//go:embed migrations assets/templates/email/*
var FS embed.FS
