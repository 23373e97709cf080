package model

// TokenMeta is the ERC-20 metadata shown next to on-chain quotes.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
}
