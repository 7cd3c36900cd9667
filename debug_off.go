//go:build !debug

package measureplot

const debugBuild = false
