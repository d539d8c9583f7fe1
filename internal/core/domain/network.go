package domain

import "fmt"

type Network uint8

const (
	NetworkMainnet Network = iota
	NetworkTestnet
	NetworkStagenet
	NetworkFakechain
)

var networkNames = map[Network]string{
	NetworkMainnet:   "mainnet",
	NetworkTestnet:   "testnet",
	NetworkStagenet:  "stagenet",
	NetworkFakechain: "fakechain",
}

func (n Network) String() string {
	if name, ok := networkNames[n]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(n))
}

func ParseNetwork(s string) (Network, error) {
	for network, name := range networkNames {
		if name == s {
			return network, nil
		}
	}
	return 0, fmt.Errorf("unknown network %q", s)
}
