//go:build debug

package measureplot

// debugBuild enables the diagnostic overlay for every Renderer.
const debugBuild = true
