package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ardanlabs/streamledger/foundation/stream/account"
	"github.com/ardanlabs/streamledger/foundation/stream/request"
	"github.com/ethereum/go-ethereum/crypto"
)

var client = http.Client{
	Timeout: 10 * time.Second,
}

// loadKey reads the private key of the selected account.
func loadKey() (*ecdsa.PrivateKey, account.ID, error) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		return nil, "", err
	}

	return privateKey, account.PublicKeyToID(privateKey.PublicKey), nil
}

// header builds the request header, asking the node for the next nonce
// when none was provided.
func header(acct account.ID) (request.Header, error) {
	if nonce != 0 {
		return request.Header{ChainID: chainID, Nonce: nonce}, nil
	}

	var info struct {
		Nonce uint64 `json:"nonce"`
	}
	if err := get(fmt.Sprintf("/v1/accounts/%s", acct), &info); err != nil {
		return request.Header{}, fmt.Errorf("reading nonce: %w", err)
	}

	return request.Header{ChainID: chainID, Nonce: info.Nonce + 1}, nil
}

// get calls the node and decodes the response.
func get(path string, val any) error {
	resp, err := client.Get(url + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, val)
}

// post sends the value to the node and decodes the response.
func post(path string, body any, val any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := client.Post(url+path, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, val)
}

func decodeResponse(resp *http.Response, val any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("node returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	return json.NewDecoder(resp.Body).Decode(val)
}

// printJSON writes the value as indented JSON.
func printJSON(val any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(val)
}
