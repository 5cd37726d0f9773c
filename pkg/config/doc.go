// Package config handles per-target build configuration for isobundle.
//
// Configuration is layered with koanf, later layers overriding earlier ones:
//
//  1. embedded defaults (embedded/client.toml, embedded/server.toml)
//  2. the project file (isobundle.toml, .isobundle.toml or isobundle.yaml),
//     one table per target
//  3. environment variables ISOBUNDLE_<TARGET>__<SECTION>__<KEY>, where a
//     double underscore separates levels
//  4. overrides passed by the caller
//
// Both of these raise the server inline limit:
//
//	[server.assets]
//	inline_limit = 4096
//
//	ISOBUNDLE_SERVER__ASSETS__INLINE_LIMIT=4096
//
// Lists such as rules are replaced, not appended, by a later layer.
package config
