// Package scanner is the entry point for extracting endpoints and secrets from
// captured resources.
package scanner

import (
	"github.com/CompassSecurity/harleek/pkg/scanner/engine"
	"github.com/CompassSecurity/harleek/pkg/scanner/rules"
	"github.com/CompassSecurity/harleek/pkg/scanner/types"
)

type Finding = types.Finding
type Resource = types.Resource
type Kind = types.Kind
type ProgressFunc = types.ProgressFunc
type Library = rules.Library
type LibraryOptions = rules.Options
type Engine = engine.Engine
type Options = engine.Options

const (
	KindEndpoint = types.KindEndpoint
	KindSecret   = types.KindSecret

	VerificationVerified   = types.VerificationVerified
	VerificationUnverified = types.VerificationUnverified
)

var NewLibrary = rules.New
var DefaultLibrary = rules.Default
var DownloadRules = rules.DownloadRules

var New = engine.New
var DefaultOptions = engine.DefaultOptions
