/*
Package config provides configuration management for GeoBench with
multi-source support.

Configuration is resolved in precedence order:

	┌─────────────────────────────────────────────┐
	│            CLI flags                        │ ← Highest Priority
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│        Environment Variables                │
	│            (GEOBENCH_*)                     │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│         Configuration File                  │
	│            (YAML format)                    │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│           Default Values                    │ ← Lowest Priority
	└─────────────────────────────────────────────┘

The metadata_pass toggle deserves a note: it is loaded here once and then
carried on each ConversionRequest explicitly. Nothing mutates it at runtime,
so two identical requests always behave identically.
*/
package config
