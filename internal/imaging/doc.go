// Package imaging implements the "sdp" activity family: diffusion-backed
// image generation plus local compositing (solid fills, resizing, pasting,
// text and speech bubbles).
//
// Image artifacts are image.Image values. Every operation produces a fresh
// *image.RGBA so cached images are never mutated behind a later reader.
// Files are encoded by extension: PNG, JPEG (alpha dropped), BMP and TIFF;
// decoding additionally accepts WebP.
package imaging
