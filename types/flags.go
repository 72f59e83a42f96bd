package types

const (
	FlagHome      = "home"
	FlagChainID   = "chain-id"
	FlagOverwrite = "overwrite"
	FlagURL       = "url"
	FlagKey       = "key"
	FlagNonce     = "nonce"
)
