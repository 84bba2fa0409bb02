package model

// PlayerStatusResponse represents response for GET /adventure/status
type PlayerStatusResponse struct {
	Address       string  `json:"address"`
	ChainID       uint64  `json:"chainId"`
	Joined        bool    `json:"joined"`
	Progress      string  `json:"progress"`    // "Explorer" or "Newcomer"
	WeaponPower   *uint64 `json:"weaponPower"` // null until decrypted
	CoinBalance   *uint64 `json:"coinBalance"` // null until decrypted
	Stale         bool    `json:"stale"`       // decrypted values belong to superseded handles
	Decrypting    bool    `json:"decrypting"`
	PendingAction string  `json:"pendingAction,omitempty"`
	LatestLoot    *uint64 `json:"latestLoot,omitempty"`
	Message       string  `json:"message,omitempty"`
	TxHash        string  `json:"txHash,omitempty"`
}

// ActionResponse represents response for POST /adventure/join and /adventure/attack
type ActionResponse struct {
	TxHash  string               `json:"txHash"`
	Message string               `json:"message"`
	Loot    *uint64              `json:"loot,omitempty"`
	Warning string               `json:"warning,omitempty"` // set when the follow-up refresh failed
	Status  PlayerStatusResponse `json:"status"`
}
