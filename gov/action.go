package gov

import (
	"errors"
)

// Tags sent to the registry, one per governance action.
const (
	TagUpdatePairsVault                  = "update_pairs_vault"
	TagUpdateCollectorLookupTable        = "update_collector_lookup_table"
	TagRemoveWhitelistAssetLocker        = "remove_whitelist_asset_locker"
	TagRemoveWhitelistAppIDVaultInterest = "remove_whitelist_app_id_vault_interest"
	TagWhitelistAppIDLiquidation         = "whitelist_app_id_liquidation"
	TagRemoveWhitelistAppIDLiquidation   = "remove_whitelist_app_id_liquidation"
	TagWhitelistAppIDLockerRewards       = "whitelist_app_id_locker_rewards"
	TagWhitelistedAsset                  = "whitelisted_asset"
	TagCollectorLookupTable              = "collector_lookup_table"
	TagAuctionMappingForApp              = "auction_mapping_for_app"
	TagExtendedPairsVaultRecords         = "extended_pairs_vault_records"
	TagWhitelistAppIDVaultInterest       = "whitelist_app_id_vault_interest"
	TagAddESMTriggerParams               = "add_esm_trigger_params"
)

var (
	ErrEmptyMsg     = errors.New("governance msg carries no action")
	ErrAmbiguousMsg = errors.New("governance msg carries more than one action")
)

// Action is a governance change that must be confirmed eligible by the
// registry before a proposal carrying it is accepted.
type Action interface {
	Tag() string
	AppMapping() uint64
}

type UpdatePairVaultStability struct {
	AppMappingID uint64 `json:"app_mapping_id"`
	ExtPairID    uint64 `json:"ext_pair_id"`
}

type UpdateLockerSavingRate struct {
	AppMappingID uint64 `json:"app_mapping_id"`
	AssetID      uint64 `json:"asset_id"`
}

type RemoveWhitelistAssetLocker struct {
	AppMappingID uint64 `json:"app_mapping_id"`
	AssetID      uint64 `json:"asset_id"`
}

type RemoveWhitelistAppVaultInterest struct {
	AppMappingID uint64 `json:"app_mapping_id"`
}

type WhitelistAppLiquidation struct {
	AppMappingID uint64 `json:"app_mapping_id"`
}

type RemoveWhitelistAppLiquidation struct {
	AppMappingID uint64 `json:"app_mapping_id"`
}

type WhitelistAssetLockerRewards struct {
	AppMappingID uint64 `json:"app_mapping_id"`
	AssetID      uint64 `json:"asset_id"`
}

type WhitelistAssetLocker struct {
	AppMappingID uint64 `json:"app_mapping_id"`
	AssetID      uint64 `json:"asset_id"`
}

type SetCollectorLookupTable struct {
	AppMappingID     uint64 `json:"app_mapping_id"`
	CollectorAssetID uint64 `json:"collector_asset_id"`
	SecondaryAssetID uint64 `json:"secondary_asset_id"`
}

type SetAuctionMapping struct {
	AppMappingID uint64 `json:"app_mapping_id"`
}

type AddExtendedPairVault struct {
	AppMappingID uint64  `json:"app_mapping_id"`
	PairID       uint64  `json:"pair_id"`
	StabilityFee Decimal `json:"stability_fee"`
	ClosingFee   Decimal `json:"closing_fee"`
	DrawDownFee  Decimal `json:"draw_down_fee"`
	DebtCeiling  uint64  `json:"debt_ceiling"`
	DebtFloor    uint64  `json:"debt_floor"`
	PairName     string  `json:"pair_name"`
}

type WhitelistAppVaultInterest struct {
	AppMappingID uint64 `json:"app_mapping_id"`
}

type SetESMTriggerParams struct {
	AppMappingID uint64 `json:"app_mapping_id"`
}

func (a UpdatePairVaultStability) Tag() string        { return TagUpdatePairsVault }
func (a UpdateLockerSavingRate) Tag() string          { return TagUpdateCollectorLookupTable }
func (a RemoveWhitelistAssetLocker) Tag() string      { return TagRemoveWhitelistAssetLocker }
func (a RemoveWhitelistAppVaultInterest) Tag() string { return TagRemoveWhitelistAppIDVaultInterest }
func (a WhitelistAppLiquidation) Tag() string         { return TagWhitelistAppIDLiquidation }
func (a RemoveWhitelistAppLiquidation) Tag() string   { return TagRemoveWhitelistAppIDLiquidation }
func (a WhitelistAssetLockerRewards) Tag() string     { return TagWhitelistAppIDLockerRewards }
func (a WhitelistAssetLocker) Tag() string            { return TagWhitelistedAsset }
func (a SetCollectorLookupTable) Tag() string         { return TagCollectorLookupTable }
func (a SetAuctionMapping) Tag() string               { return TagAuctionMappingForApp }
func (a AddExtendedPairVault) Tag() string            { return TagExtendedPairsVaultRecords }
func (a WhitelistAppVaultInterest) Tag() string       { return TagWhitelistAppIDVaultInterest }
func (a SetESMTriggerParams) Tag() string             { return TagAddESMTriggerParams }

func (a UpdatePairVaultStability) AppMapping() uint64        { return a.AppMappingID }
func (a UpdateLockerSavingRate) AppMapping() uint64          { return a.AppMappingID }
func (a RemoveWhitelistAssetLocker) AppMapping() uint64      { return a.AppMappingID }
func (a RemoveWhitelistAppVaultInterest) AppMapping() uint64 { return a.AppMappingID }
func (a WhitelistAppLiquidation) AppMapping() uint64         { return a.AppMappingID }
func (a RemoveWhitelistAppLiquidation) AppMapping() uint64   { return a.AppMappingID }
func (a WhitelistAssetLockerRewards) AppMapping() uint64     { return a.AppMappingID }
func (a WhitelistAssetLocker) AppMapping() uint64            { return a.AppMappingID }
func (a SetCollectorLookupTable) AppMapping() uint64         { return a.AppMappingID }
func (a SetAuctionMapping) AppMapping() uint64               { return a.AppMappingID }
func (a AddExtendedPairVault) AppMapping() uint64            { return a.AppMappingID }
func (a WhitelistAppVaultInterest) AppMapping() uint64       { return a.AppMappingID }
func (a SetESMTriggerParams) AppMapping() uint64             { return a.AppMappingID }

// Msg is the wire form of an Action: exactly one field is set.
type Msg struct {
	UpdatePairVaultStability        *UpdatePairVaultStability        `json:"update_pair_vault_stability,omitempty"`
	UpdateLockerSavingRate          *UpdateLockerSavingRate          `json:"update_locker_lsr,omitempty"`
	RemoveWhitelistAssetLocker      *RemoveWhitelistAssetLocker      `json:"remove_whitelist_asset_locker,omitempty"`
	RemoveWhitelistAppVaultInterest *RemoveWhitelistAppVaultInterest `json:"remove_whitelist_app_id_vault_interest,omitempty"`
	WhitelistAppLiquidation         *WhitelistAppLiquidation         `json:"whitelist_app_id_liquidation,omitempty"`
	RemoveWhitelistAppLiquidation   *RemoveWhitelistAppLiquidation   `json:"remove_whitelist_app_id_liquidation,omitempty"`
	WhitelistAssetLockerRewards     *WhitelistAssetLockerRewards     `json:"whitelist_asset_locker_rewards,omitempty"`
	WhitelistAssetLocker            *WhitelistAssetLocker            `json:"whitelist_asset_locker,omitempty"`
	SetCollectorLookupTable         *SetCollectorLookupTable         `json:"set_collector_lookup_table,omitempty"`
	SetAuctionMapping               *SetAuctionMapping               `json:"set_auction_mapping_for_app,omitempty"`
	AddExtendedPairVault            *AddExtendedPairVault            `json:"add_extended_pair_vault,omitempty"`
	WhitelistAppVaultInterest       *WhitelistAppVaultInterest       `json:"whitelist_app_id_vault_interest,omitempty"`
	SetESMTriggerParams             *SetESMTriggerParams             `json:"set_esm_trigger_params,omitempty"`
}

// NewMsg wraps a into its wire form.
func NewMsg(a Action) (m Msg) {
	switch v := a.(type) {
	case UpdatePairVaultStability:
		m.UpdatePairVaultStability = &v
	case UpdateLockerSavingRate:
		m.UpdateLockerSavingRate = &v
	case RemoveWhitelistAssetLocker:
		m.RemoveWhitelistAssetLocker = &v
	case RemoveWhitelistAppVaultInterest:
		m.RemoveWhitelistAppVaultInterest = &v
	case WhitelistAppLiquidation:
		m.WhitelistAppLiquidation = &v
	case RemoveWhitelistAppLiquidation:
		m.RemoveWhitelistAppLiquidation = &v
	case WhitelistAssetLockerRewards:
		m.WhitelistAssetLockerRewards = &v
	case WhitelistAssetLocker:
		m.WhitelistAssetLocker = &v
	case SetCollectorLookupTable:
		m.SetCollectorLookupTable = &v
	case SetAuctionMapping:
		m.SetAuctionMapping = &v
	case AddExtendedPairVault:
		m.AddExtendedPairVault = &v
	case WhitelistAppVaultInterest:
		m.WhitelistAppVaultInterest = &v
	case SetESMTriggerParams:
		m.SetESMTriggerParams = &v
	}
	return
}

// Action returns the single action carried by m.
func (m Msg) Action() (Action, error) {
	var found []Action
	if m.UpdatePairVaultStability != nil {
		found = append(found, *m.UpdatePairVaultStability)
	}
	if m.UpdateLockerSavingRate != nil {
		found = append(found, *m.UpdateLockerSavingRate)
	}
	if m.RemoveWhitelistAssetLocker != nil {
		found = append(found, *m.RemoveWhitelistAssetLocker)
	}
	if m.RemoveWhitelistAppVaultInterest != nil {
		found = append(found, *m.RemoveWhitelistAppVaultInterest)
	}
	if m.WhitelistAppLiquidation != nil {
		found = append(found, *m.WhitelistAppLiquidation)
	}
	if m.RemoveWhitelistAppLiquidation != nil {
		found = append(found, *m.RemoveWhitelistAppLiquidation)
	}
	if m.WhitelistAssetLockerRewards != nil {
		found = append(found, *m.WhitelistAssetLockerRewards)
	}
	if m.WhitelistAssetLocker != nil {
		found = append(found, *m.WhitelistAssetLocker)
	}
	if m.SetCollectorLookupTable != nil {
		found = append(found, *m.SetCollectorLookupTable)
	}
	if m.SetAuctionMapping != nil {
		found = append(found, *m.SetAuctionMapping)
	}
	if m.AddExtendedPairVault != nil {
		found = append(found, *m.AddExtendedPairVault)
	}
	if m.WhitelistAppVaultInterest != nil {
		found = append(found, *m.WhitelistAppVaultInterest)
	}
	if m.SetESMTriggerParams != nil {
		found = append(found, *m.SetESMTriggerParams)
	}
	switch len(found) {
	case 0:
		return nil, ErrEmptyMsg
	case 1:
		return found[0], nil
	default:
		return nil, ErrAmbiguousMsg
	}
}
