package cloud

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("S3Client", func() {
	var (
		fake   *fakeS3
		signer *fakePresigner
		client *S3Client
		ctx    context.Context
	)

	BeforeEach(func() {
		fake = &fakeS3{}
		signer = &fakePresigner{}
		client = &S3Client{svc: fake, presign: signer, bucket: "ecobin-reports"}
		ctx = context.Background()
	})

	It("should upload the report and return a presigned link", func() {
		url, err := client.UploadReport(ctx, "reports/bin-001/2026-W42.json", []byte(`{"total":4}`), "application/json")
		Expect(err).NotTo(HaveOccurred())
		Expect(url).To(HavePrefix("https://ecobin-reports.s3.amazonaws.com/reports/bin-001/2026-W42.json"))

		Expect(fake.puts).To(HaveLen(1))
		Expect(aws.ToString(fake.puts[0].ContentType)).To(Equal("application/json"))
		body, err := io.ReadAll(fake.puts[0].Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(Equal(`{"total":4}`))
		Expect(signer.keys).To(ConsistOf("reports/bin-001/2026-W42.json"))
	})

	It("should not presign when the upload fails", func() {
		fake.err = errors.New("denied")
		_, err := client.UploadReport(ctx, "k", nil, "application/json")
		Expect(err).To(MatchError(ContainSubstring("denied")))
		Expect(signer.keys).To(BeEmpty())
	})

	It("should list report keys across pages", func() {
		fake.pages = []*s3.ListObjectsV2Output{
			{
				Contents:              []s3types.Object{{Key: aws.String("reports/bin-001/2026-W41.json")}},
				IsTruncated:           aws.Bool(true),
				NextContinuationToken: aws.String("next"),
			},
			{
				Contents: []s3types.Object{{Key: aws.String("reports/bin-001/2026-W42.json")}},
			},
		}
		keys, err := client.ListReports(ctx, "reports/bin-001/")
		Expect(err).NotTo(HaveOccurred())
		Expect(keys).To(Equal([]string{
			"reports/bin-001/2026-W41.json",
			"reports/bin-001/2026-W42.json",
		}))
	})
})
