// Package dns keeps Route53 pointed at whichever instance currently holds
// a server-directory slot.
package dns

import (
	"fmt"
	"net"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/route53"
)

type DNS interface {
	UpdateRoute(region string, slot int, sessionName string, address net.IP) error
}

type Route53DNS struct {
	svc    *route53.Route53
	domain string
	zoneID string
}

func NewRoute53DNS(sess *session.Session, domain, zoneID string) (*Route53DNS, error) {
	return &Route53DNS{svc: route53.New(sess), domain: domain, zoneID: zoneID}, nil
}

// UpdateRoute upserts two A records for address in one batch: the
// slot-qualified name a participant's client bridge never sees directly,
// and a session-qualified name that stays stable across slot reassignment
// (a redeploy may move a session to a different region/slot, but
// reconnecting clients address it by session, not by slot).
func (r *Route53DNS) UpdateRoute(region string, slot int, sessionName string, address net.IP) error {
	request := &route53.ChangeResourceRecordSetsInput{
		ChangeBatch: &route53.ChangeBatch{
			Changes: []*route53.Change{
				r.upsertChange(fmt.Sprintf("ws-%s-%d.%s", region, slot, r.domain), address),
				r.upsertChange(fmt.Sprintf("%s.%s", sessionName, r.domain), address),
			},
		},
		HostedZoneId: aws.String(r.zoneID),
	}
	_, err := r.svc.ChangeResourceRecordSets(request)
	return err
}

func (r *Route53DNS) upsertChange(name string, address net.IP) *route53.Change {
	return &route53.Change{
		Action: aws.String("UPSERT"),
		ResourceRecordSet: &route53.ResourceRecordSet{
			Name: aws.String(name),
			Type: aws.String("A"),
			ResourceRecords: []*route53.ResourceRecord{
				{Value: aws.String(address.String())},
			},
			TTL: aws.Int64(60),
		},
	}
}
