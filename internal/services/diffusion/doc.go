// Package diffusion is a client for the Stable Diffusion WebUI HTTP API.
//
// Only the txt2img and img2img endpoints are used. Images travel as base64
// PNG in both directions; responses are decoded into image.Image values.
package diffusion
