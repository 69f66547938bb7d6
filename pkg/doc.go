// Package pkg provides the libraries behind wheeltag.
//
// # Overview
//
// wheeltag declares that a binary Python wheel is compatible with more
// platforms by adding platform tags to its filename and to the Tag lines of
// its WHEEL manifest. The pkg directory is organized as:
//
//  1. [tags] - Wheel filename and tag codec, request building, filename merge
//  2. [manifest] - WHEEL manifest parsing and merging, RECORD refresh
//  3. [archive] - Staged zip rewriting with per-entry patches
//  4. [addplat] - Synchronizing one wheel (plan, then apply)
//  5. [pipeline] - Batch runs over many wheels, reports
//  6. [errors] - Error codes shared by all packages
//  7. [observability] - Hooks for metrics and tracing
//
// # Architecture
//
// The data flow for one wheel:
//
//	wheel path + requested sub-tags
//	         ↓
//	    [tags] parse filename, union platform tags
//	         ↓
//	    [manifest] append missing Tag lines
//	         ↓
//	    [archive] rewrite into a temp file, rename into place
//	         ↓
//	    written path (or "" when nothing changed)
//
// # Quick Start
//
//	req, err := tags.NewRequest("macosx_10_9_intel", "macosx_10_9_x86_64")
//	if err != nil {
//	    return err
//	}
//	out, err := addplat.Synchronize("dist/pkg-1.0-cp39-cp39-macosx_10_9_x86_64.whl", req, addplat.Options{})
//
// [tags]: github.com/matzehuels/wheeltag/pkg/tags
// [manifest]: github.com/matzehuels/wheeltag/pkg/manifest
// [archive]: github.com/matzehuels/wheeltag/pkg/archive
// [addplat]: github.com/matzehuels/wheeltag/pkg/addplat
// [pipeline]: github.com/matzehuels/wheeltag/pkg/pipeline
// [errors]: github.com/matzehuels/wheeltag/pkg/errors
// [observability]: github.com/matzehuels/wheeltag/pkg/observability
package pkg
