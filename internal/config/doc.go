// Package config loads the sagequery configuration from ~/.sagequery/config.yaml,
// an optional project overlay in .sagequery/config.yaml, a .env file and
// SAGEQUERY_* environment variables, in increasing order of precedence.
package config
