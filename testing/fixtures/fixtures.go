package fixtures

import (
	"github.com/storacha/go-candid/principal"
	"github.com/storacha/go-candid/principal/ed25519/signer"
	"github.com/storacha/go-candid/testing/helpers"
)

var Alice, _ = signer.Parse("MgCZT5vOnYZoVAeyjnzuJIVY9J4LNtJ+f8Js0cTPuKUpFne0BVEDJjEu6quFIU8yp91/TY/+MYK8GvlKoTDnqOCovCVM=")

var Bob, _ = signer.Parse("MgCYbj5AJfVvdrjkjNCxB3iAUwx7RQHVQ7H1sKyHy46Iose0BEevXgL1V73PD9snOCIoONgb+yQ9sycYchQC8kygR4qY=")

var Mallory, _ = signer.Parse("MgCYtH0AvYxiQwBG6+ZXcwlXywq9tI50G2mCAUJbwrrahkO0B0elFYkl3Ulf3Q3A/EvcVY0utb4etiSE8e6pi4H0FEmU=")

// Canister is the principal requests in tests are addressed to
// (ryjl3-tyaaa-aaaaa-aaaba-cai).
var Canister = helpers.Must(principal.FromBytes(helpers.FromHex("00000000000000020101")))

// OtherCanister is a second canister for misrouting tests
// (rrkah-fqaaa-aaaaa-aaaaq-cai).
var OtherCanister = helpers.Must(principal.FromBytes(helpers.FromHex("00000000000000010101")))
