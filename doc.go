// Package genowindow holds the ingestion edges of the windowed statistics
// tools: opening local, gs:// and compressed inputs, detecting delimiters,
// and loading a variant axis with per-variant genotype summaries from BIM,
// VCF and BGEN files. The windowing engine itself lives in the axis, window,
// reconcile, chunked, reduce, executor and assemble packages.
package genowindow
