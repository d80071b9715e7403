package web

import "embed"

// StaticFS embeds the web client (html/css/js).
//go:embed static/*
var StaticFS embed.FS
