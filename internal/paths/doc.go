// Provides platform-appropriate paths for pkgbuilder.
//
// All paths follow XDG conventions on Linux and platform-native conventions
// on macOS. The tool name "pkgbuilder" is used as the subdirectory under
// each base path.
package paths
