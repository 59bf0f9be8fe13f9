// Package env layers process environment variables over a driven.ConfigStore.
//
// Every configuration key has an environment form: the key upper-cased with
// dots replaced by underscores and prefixed with STUDYPIPE_, so llm.api_key
// becomes STUDYPIPE_LLM_API_KEY. A set variable wins over the file value.
//
// LoadDotEnv reads .env files into the process environment first, so
// deployment secrets can live beside the inbox instead of in config.toml.
package env
