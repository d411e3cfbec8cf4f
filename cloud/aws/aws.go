// Package aws bootstraps an AWS-backed cloud.Cloud from EC2 instance
// metadata: a DynamoDB server-directory row, a Route53 A record for this
// slot, and S3 upload for periodic world snapshots. Kept under cloud/aws
// rather than cloud's own package so that importing cloud (the Cloud
// interface and Offline) does not pull in the AWS SDK; the worldserver
// entry point imports both and falls back to cloud.Offline when New fails.
package aws

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/user"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/credentials/ec2rolecreds"
	"github.com/aws/aws-sdk-go/aws/ec2metadata"
	"github.com/aws/aws-sdk-go/aws/session"

	"github.com/brinewood-games/worldstream/cloud/db"
	"github.com/brinewood-games/worldstream/cloud/dns"
	"github.com/brinewood-games/worldstream/cloud/fs"
)

const awsProfile = "worldstream"

const UpdatePeriod = 30 * time.Second

// Cloud is the AWS-backed cloud.Cloud implementation: a server-directory
// row in DynamoDB, a Route53 A record for this slot, and S3 upload for
// periodic world snapshots.
type Cloud struct {
	region     string
	serverSlot int
	session    string
	ip         net.IP
	database   db.Database
	dns        dns.DNS
	fs         fs.Filesystem
}

func (c *Cloud) String() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(c.region)
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(c.serverSlot))
	b.WriteByte(' ')
	b.WriteString(c.ip.String())
	b.WriteByte(']')
	return b.String()
}

type userData struct {
	Domain        string
	Region        string
	Stage         string
	ServerSlots   int
	Route53ZoneID string
}

// New discovers this instance's EC2 user-data and public IP through the
// instance metadata service, claims a server-directory slot for session,
// and points DNS at it. Returns an error (never a usable Offline stand-in)
// so the caller can decide how to degrade.
func New(session_ string) (*Cloud, error) {
	c := &Cloud{session: session_}

	meta := ec2metadata.New(session.Must(session.NewSession()))

	data, err := loadUserData(meta)
	if err != nil {
		return nil, err
	}
	c.region = data.Region

	c.ip, err = instancePublicIP(meta)
	if err != nil {
		return nil, err
	}

	sess, err := getAWSSession(c.region)
	if err != nil {
		return nil, err
	}

	c.database, err = db.NewDynamoDBDatabase(sess, data.Stage)
	if err != nil {
		return nil, err
	}
	c.dns, err = dns.NewRoute53DNS(sess, data.Domain, data.Route53ZoneID)
	if err != nil {
		return nil, err
	}
	c.fs, err = fs.NewS3Filesystem(sess, data.Stage, c.session)
	if err != nil {
		return nil, err
	}

	servers, err := c.database.ReadServersByRegion(c.region)
	if err != nil {
		return nil, err
	}

	// Reclaim by session, not by IP: a worldstream server's addressable
	// identity is the session it serves, so a redeploy that lands on a new
	// instance (and therefore a new IP) still keeps its slot, DNS record,
	// and any participants reconnecting by session name.
	c.serverSlot = -1
	for _, s := range servers {
		if s.Session == c.session {
			c.serverSlot = s.Slot
			break
		}
	}
	if c.serverSlot == -1 {
	scan:
		for slot := 0; slot < data.ServerSlots; slot++ {
			for _, s := range servers {
				if s.Slot == slot {
					continue scan
				}
			}
			c.serverSlot = slot
			break
		}
	}
	if c.serverSlot == -1 {
		return nil, errors.New("no empty server slot")
	}

	if err := c.dns.UpdateRoute(c.region, c.serverSlot, c.session, c.ip); err != nil {
		return nil, err
	}
	if err := c.UpdateServer(0); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Cloud) UpdateServer(activeParticipants int) error {
	return c.database.UpdateServer(db.Server{
		Region:       c.region,
		Slot:         c.serverSlot,
		IP:           c.ip,
		Session:      c.session,
		Participants: activeParticipants,
		TTL:          time.Now().Unix() + int64(UpdatePeriod/time.Second) + 5,
	})
}

func (c *Cloud) UploadWorldSnapshot(data []byte) error {
	return c.fs.UploadStaticFile("world-snapshot.png", 10, data)
}

func (c *Cloud) UpdatePeriod() time.Duration {
	return UpdatePeriod
}

func getAWSSession(region string) (*session.Session, error) {
	usr, err := user.Current()
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("%s/.aws/credentials", usr.HomeDir)

	var creds *credentials.Credentials
	if _, statErr := os.Stat(path); statErr == nil {
		creds = credentials.NewSharedCredentials(path, awsProfile)
	} else {
		creds = credentials.NewCredentials(&ec2rolecreds.EC2RoleProvider{
			Client: ec2metadata.New(session.New(aws.NewConfig())),
		})
	}
	return session.NewSession(&aws.Config{Region: aws.String(region), Credentials: creds})
}

// instancePublicIP reads the instance's public IPv4 address directly from
// the metadata service via the SDK's own client, rather than asking a
// third-party lookup service to echo it back.
func instancePublicIP(meta *ec2metadata.EC2Metadata) (net.IP, error) {
	raw, err := meta.GetMetadata("public-ipv4")
	if err != nil {
		return nil, err
	}
	ip := net.ParseIP(strings.TrimSpace(raw))
	if ip == nil {
		return nil, fmt.Errorf("could not parse public IP address %q", raw)
	}
	return ip, nil
}

// loadUserData parses the instance's user-data key=value lines through the
// same metadata client instancePublicIP uses, instead of a bespoke
// http.Client pointed at the metadata service's raw URL.
func loadUserData(meta *ec2metadata.EC2Metadata) (*userData, error) {
	raw, err := meta.GetUserData()
	if err != nil {
		return nil, err
	}

	data := &userData{}
	for _, line := range strings.Split(raw, "\n") {
		idx := strings.IndexRune(line, '=')
		if idx == -1 {
			continue
		}
		name := strings.Trim(line[:idx], " ")
		value := strings.Trim(line[idx+1:], "\" ")

		switch name {
		case "DOMAIN":
			data.Domain = value
		case "REGION":
			data.Region = value
		case "STAGE":
			data.Stage = value
		case "SERVER_SLOTS":
			if data.ServerSlots, err = strconv.Atoi(value); err != nil {
				return nil, err
			}
		case "ROUTE53_ZONEID":
			data.Route53ZoneID = value
		}
	}
	if data.Domain == "" {
		return nil, errors.New("missing domain")
	}
	if data.Region == "" {
		return nil, errors.New("missing region")
	}
	return data, nil
}
