package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	id "sigil/pkg/domain"
)

const testRecipient = id.Address("0x00112233445566778899aabbccddeeff00112233")

func baseMessage() Message {
	return Message{
		Recipient: testRecipient,
		TypeID:    3,
		Price:     100,
		Deadline:  1_900_000_000,
		DomainID:  DomainID("sigil-test"),
		Nonce:     7,
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	msg := baseMessage()
	assert.Equal(t, msg.Encode(), msg.Encode())
	assert.Equal(t, msg.Digest(), msg.Digest())
}

func TestEncodeLayout(t *testing.T) {
	msg := baseMessage()
	encoded := msg.Encode()

	recipient := []byte(msg.Recipient.String())
	// 2-byte length prefix + recipient + typeID + price + deadline + domain + nonce
	assert.Len(t, encoded, 2+len(recipient)+8+8+8+32+8)
	assert.Equal(t, byte(0), encoded[0])
	assert.Equal(t, byte(len(recipient)), encoded[1])
	assert.Equal(t, recipient, encoded[2:2+len(recipient)])
}

func TestDigestChangesWithEveryField(t *testing.T) {
	base := baseMessage()

	mutations := map[string]Message{
		"recipient": {Recipient: "0xffffffffffffffffffffffffffffffffffffffff", TypeID: base.TypeID, Price: base.Price, Deadline: base.Deadline, DomainID: base.DomainID, Nonce: base.Nonce},
		"type_id":   {Recipient: base.Recipient, TypeID: base.TypeID + 1, Price: base.Price, Deadline: base.Deadline, DomainID: base.DomainID, Nonce: base.Nonce},
		"price":     {Recipient: base.Recipient, TypeID: base.TypeID, Price: base.Price + 1, Deadline: base.Deadline, DomainID: base.DomainID, Nonce: base.Nonce},
		"deadline":  {Recipient: base.Recipient, TypeID: base.TypeID, Price: base.Price, Deadline: base.Deadline + 1, DomainID: base.DomainID, Nonce: base.Nonce},
		"domain":    {Recipient: base.Recipient, TypeID: base.TypeID, Price: base.Price, Deadline: base.Deadline, DomainID: DomainID("other-deployment"), Nonce: base.Nonce},
		"nonce":     {Recipient: base.Recipient, TypeID: base.TypeID, Price: base.Price, Deadline: base.Deadline, DomainID: base.DomainID, Nonce: base.Nonce + 1},
	}

	for field, mutated := range mutations {
		assert.NotEqual(t, base.Digest(), mutated.Digest(), "changing %s must change the digest", field)
	}
}

func TestDomainIDSeparatesDeployments(t *testing.T) {
	assert.NotEqual(t, DomainID("sigil-prod"), DomainID("sigil-staging"))
	assert.Equal(t, DomainID("sigil-prod"), DomainID("sigil-prod"))
}
