// Package bundle holds the build-time asset policy for the single-page app:
// import aliases, which files count as importable binary assets, and the rule
// that moves 3D model modules into their own "models" output chunk.
//
// The same policy the Vite config declares is mirrored here so the server can
// verify a build's manifest and keep model files off the primary load path.
package bundle
