package apistrings

const (
	/// Core Functionality Error
	ServerError = "a server error occurred, please try again later"

	/// Wallet Related Strings
	InvalidWalletInput   = "check 'user_id' key, invalid request"
	InvalidDepositInput  = "check 'amount' key, amount must be a positive decimal"
	InvalidWalletID      = "entered wallet ID is invalid"
	WalletNotFound       = "wallet does not exist"
	DuplicateWallet      = "user already has a wallet"
	InsufficientFunds    = "insufficient funds"

	/// Transaction Related Strings
	InvalidTransactionInput = "check 'buyer_id', 'seller_id', 'item_id' or 'order_type' keys, invalid request"
	InvalidTransactionID    = "entered transaction ID is invalid"
	TransactionNotFound     = "transaction does not exist"
	SameParty               = "buyer and seller cannot be the same user"
	PartyWalletMissing      = "buyer or seller wallet not found"
	ItemNotFound            = "item does not exist in the catalog"
	InvalidListingData      = "catalog returned invalid listing data"
	CheckoutNotDeferred     = "checkout only applies to REAL items"

	/// Operation Related Strings
	InvalidOperationID = "entered operation ID is invalid"
	OperationNotFound  = "operation does not exist"
)
